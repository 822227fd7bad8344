// Package models holds the GeekForce Central domain records and the
// collection paths they live under.
package models

import "time"

// Collection paths in the hosted document store.
const (
	CollectionUsers    = "users"
	CollectionTasks    = "tasks"
	CollectionEvents   = "events"
	CollectionMessages = "chat_messages"
)

// ServerTimestamp is a sentinel field value replaced with the server
// clock when the write is applied. Used for chat message ordering so
// client clock skew never reorders the channel.
const ServerTimestamp = "$serverTimestamp"

type MemberStatus string

const (
	StatusOnline  MemberStatus = "online"
	StatusAway    MemberStatus = "away"
	StatusOffline MemberStatus = "offline"
)

// Member is an agent profile, one document per authenticated user.
type Member struct {
	ID             string       `json:"id" cbor:"id"`
	Username       string       `json:"username" cbor:"username"`
	Role           string       `json:"role" cbor:"role"`
	Description    string       `json:"description,omitempty" cbor:"description,omitempty"`
	Status         MemberStatus `json:"status" cbor:"status"`
	ProfilePicture string       `json:"profilePicture,omitempty" cbor:"profilePicture,omitempty"`
	Email          string       `json:"email" cbor:"email"`
}

type TaskStatus string

const (
	TaskTodo       TaskStatus = "Todo"
	TaskInProgress TaskStatus = "In Progress"
	TaskDone       TaskStatus = "Done"
)

type Task struct {
	ID          string     `json:"id" cbor:"id"`
	Title       string     `json:"title" cbor:"title"`
	Description string     `json:"description,omitempty" cbor:"description,omitempty"`
	Status      TaskStatus `json:"status" cbor:"status"`
	AssigneeID  string     `json:"assigneeId" cbor:"assigneeId"`
	DueDate     string     `json:"dueDate,omitempty" cbor:"dueDate,omitempty"`
}

type ChatMessage struct {
	ID        string    `json:"id" cbor:"id"`
	SenderID  string    `json:"senderId" cbor:"senderId"`
	Content   string    `json:"content" cbor:"content"`
	Timestamp time.Time `json:"timestamp" cbor:"timestamp"`
}

type CalendarEvent struct {
	ID          string    `json:"id" cbor:"id"`
	Title       string    `json:"title" cbor:"title"`
	Description string    `json:"description,omitempty" cbor:"description,omitempty"`
	StartTime   time.Time `json:"startTime" cbor:"startTime"`
	EndTime     time.Time `json:"endTime" cbor:"endTime"`
	AttendeeIDs []string  `json:"attendeeIds" cbor:"attendeeIds"`
	CreatedBy   string    `json:"createdBy,omitempty" cbor:"createdBy,omitempty"`
}
