/*
Package prompt holds the instruction templates sent to the generation
backend.

A Template pairs system instructions (the JSON contract the reply must
follow) with user instructions describing the request. Both may contain
${name} placeholders, filled from Vars at render time:

	tpl, _ := prompt.Defaults().Get(prompt.Quiz)
	system, user, err := tpl.Render(prompt.Vars{"text": learningText})

A placeholder without a value is an error.

Deployments can replace individual fields of any template with
Library.With; fields left empty keep the built-in text.
*/
package prompt
