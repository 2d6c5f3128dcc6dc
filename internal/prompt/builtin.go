package prompt

var builtin = map[string]Template{
	AutoTopics: {
		System: `Return only JSON:
{
  "topics": [
    { "id": "string", "name": "string", "order": number, "submodules": [] }
  ]
}`,
		User: `Generate foundational topics for course: ${course}
Experience: ${level}
Goal: ${goal}`,
	},

	TopicGeneration: {
		System: `Return only JSON:
{
  "title": "string",
  "description": "string",
  "topics": [
    { "id": "string", "name": "string", "order": number, "submodules": [] }
  ]
}`,
		User: `Generate a structured learning path for course: ${course}
Experience level: ${level}
Goal: ${goal}
Core topics: ${core_topics}`,
	},

	Submodules: {
		System: `Return only JSON:
{
  "submodules": [
    { "title": "string", "summary": "string" }
  ]
}`,
		User: `Generate up to ${count} high-quality submodules for topic: ${topic}
Course: ${course}
Experience level: ${level}`,
	},

	ContentStructured: {
		System: `Return ONLY valid JSON:
{
  "title": "string",
  "summary": "string",
  "explanation": "string (min 120 words)",
  "code_examples": [
    { "title": "string", "code": "string", "explanation": "string", "language": "string" }
  ],
  "real_world_examples": ["string"],
  "step_by_step": ["string"],
  "mini_quiz": [
    { "question": "string", "options": ["A", "B", "C", "D"], "answer": "A", "difficulty": "easy" }
  ],
  "project_suggestion": "string"
}
NO markdown. NO comments. JSON only.`,
		User: `Generate detailed educational content for:
Submodule: ${submodule}
Summary: ${summary}
Topic: ${topic}
Course: ${course}
Experience Level: ${level}

JSON STRUCTURE MUST BE EXACT.`,
	},

	ContentNotebook: {
		System: `Return ONLY valid JSON:
{
  "title": "string",
  "summary": "string",
  "markdown": "string (full lesson in markdown, min 120 words)",
  "cells": [
    { "type": "markdown", "content": "string" },
    { "type": "code", "language": "string", "content": "string" }
  ],
  "mini_quiz": [
    { "question": "string", "options": ["A", "B", "C", "D"], "answer": "A", "difficulty": "easy" }
  ]
}
Either "markdown" or "cells" must be filled. JSON only.`,
		User: `Write a notebook-style lesson for:
Submodule: ${submodule}
Summary: ${summary}
Topic: ${topic}
Course: ${course}
Experience Level: ${level}`,
	},

	Quiz: {
		System: `Return ONLY valid JSON.
No markdown.
No explanations.
No extra text.

FORMAT:

{
  "quiz": [
    { "question": "...", "options": ["A. ...", "B. ...", "C. ...", "D. ..."], "answer": "A", "difficulty": "easy" }
  ]
}

Rules:
- EXACTLY 5 questions.
- 2 easy, 2 medium, 1 hard.
- Exactly 4 options.
- Answer must be A/B/C/D.`,
		User: `Generate a quiz for "${title}" based only on this text:

${text}`,
	},
}
