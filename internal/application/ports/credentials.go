package ports

// CredentialFile is the parsed content of one credentials file.
type CredentialFile struct {
	Path   string
	Values map[string]string
}

// CredentialFileReader loads a credentials file. Read returns an error
// satisfying os.IsNotExist when the file is absent.
type CredentialFileReader interface {
	Read(path string) (*CredentialFile, error)
}

// EnvironmentReader looks up process environment variables.
type EnvironmentReader interface {
	Lookup(name string) (string, bool)
}
