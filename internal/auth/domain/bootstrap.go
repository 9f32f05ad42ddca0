package domain

// BootstrapData seeds the first admin account into an empty directory.
type BootstrapData struct {
	AdminEmail       string
	AdminDisplayName string
	AdminPassword    string
}
