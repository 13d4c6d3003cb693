package domain

import "time"

type Room struct {
	ID           string    `json:"id"`
	Participants [2]string `json:"participants"`
	ParticipantA string    `json:"participant_a"`
	ParticipantB string    `json:"participant_b"`
}

type Message struct {
	ID          string    `json:"id"`
	SenderEmail string    `json:"sender_email"`
	SenderName  string    `json:"sender_name"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}
