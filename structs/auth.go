package structs

// ArgonParams are the argon2id cost parameters used when hashing customer passwords.
type ArgonParams struct {
	Memory  uint32
	Time    uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=128"`
}
