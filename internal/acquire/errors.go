package acquire

import "errors"

var (
	// ErrInvalidPrompt is returned for empty or whitespace-only prompts.
	ErrInvalidPrompt = errors.New("acquire: invalid prompt")
	// ErrGenerationFailed is returned when the generation request fails.
	ErrGenerationFailed = errors.New("acquire: generation failed")
	// ErrIO is returned when the model cannot be written locally.
	ErrIO = errors.New("acquire: io error")
	// ErrFileNotFound is returned when Load is given a missing path.
	ErrFileNotFound = errors.New("acquire: file not found")
	// ErrImportFailed is returned when the importer rejects the model.
	ErrImportFailed = errors.New("acquire: import failed")
	// ErrThrottled is returned when submissions arrive faster than allowed.
	ErrThrottled = errors.New("acquire: too many submissions")
)

// User-facing status texts.
const (
	StatusInvalidPrompt = "Please enter\na valid prompt!"
	StatusSending       = "Sending prompt\nto server..."
	StatusLoading       = "Loading GLB\nmodel..."
	StatusLoaded        = "Model Loaded\nSuccessfully!"
	StatusGenerateError = "Error generating\nmodel!"
	StatusSaveError     = "Failed to\nsave model!"
	StatusLoadError     = "Failed to\nload model!"
	StatusThrottled     = "Too many requests,\nplease wait!"
)

// StatusFor maps a pipeline error to the text shown to the user.
func StatusFor(err error) string {
	switch {
	case err == nil:
		return StatusLoaded
	case errors.Is(err, ErrInvalidPrompt):
		return StatusInvalidPrompt
	case errors.Is(err, ErrThrottled):
		return StatusThrottled
	case errors.Is(err, ErrGenerationFailed):
		return StatusGenerateError
	case errors.Is(err, ErrIO):
		return StatusSaveError
	default:
		return StatusLoadError
	}
}
