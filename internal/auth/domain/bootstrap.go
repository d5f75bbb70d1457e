package domain

// BootstrapData describes accounts seeded into an empty database at startup.
type BootstrapData struct {
	Users []SeedUser
}

type SeedUser struct {
	Email    string
	Name     string
	Password string
	Type     AccountType
	EmailMFA bool
}
