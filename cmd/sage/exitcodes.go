package main

// Exit codes. Per-document failures do not change the exit code.
const (
	ExitSuccess     = 0 // Success, including an empty intake directory
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing API key or vault, invalid values)
	ExitPromptError = 3 // A prompt template is missing or unreadable
)
