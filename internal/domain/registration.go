package domain

// PendingRegistration is the profile data parked in the one-time-code store
// between code issuance and confirmation. It is materialized into a Member
// only after the code is confirmed; until then nothing touches the database.
type PendingRegistration struct {
	Name       string
	Email      string
	Password   string // plaintext until confirmation; hashed at materialization
	RollNumber string
}
