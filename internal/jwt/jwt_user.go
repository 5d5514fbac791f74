package jwt

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

func NewUser(user RegisterUser) (User, error) {
	hashedPassword, err := HashPassword(user.Password)
	if err != nil {
		return User{}, err
	}

	return User{
		Email:        user.Email,
		PasswordHash: hashedPassword,
	}, nil
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func ValidatePassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
