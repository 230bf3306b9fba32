package model

import "time"

type Staff struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginDTO struct {
	Login    string `json:"login" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=4,max=64"`
}

type TokenInfo struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}
