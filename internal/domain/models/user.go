package models

// User is a bank account holder. Favorites and Transactions hold ids of
// referenced documents, in insertion order; a transaction id appears in
// the lists of both parties.
type User struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	CPF          string   `json:"cpf"`
	Account      string   `json:"account"`
	Agency       string   `json:"agency"`
	PasswordHash string   `json:"-"`
	Balance      float64  `json:"balance"`
	Favorites    []string `json:"favorites"`
	Transactions []string `json:"transactions"`
}
