package compress

// Outcome is the terminal result of one compression request: either a path
// to the new artifact or a typed error, never both.
type Outcome struct {
	// OutputPath is the absolute path of the compressed artifact. The
	// caller owns the file once the outcome is delivered.
	OutputPath string
	// ArchiveURL is set when the artifact was additionally uploaded to
	// remote storage. Empty in local-only operation.
	ArchiveURL string
	// Err is non-nil if and only if the request failed.
	Err *Error
}

// Succeeded reports whether the request completed with an artifact.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

func success(outputPath, archiveURL string) Outcome {
	return Outcome{OutputPath: outputPath, ArchiveURL: archiveURL}
}

func failure(err *Error) Outcome {
	return Outcome{Err: err}
}
