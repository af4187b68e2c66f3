/*
Package session orchestrates operator navigation sessions.

It serializes concurrent access to each session's state with per-session
reference-counted locks, runs the navigation rules, and persists the
resulting state through a SessionStore adapter.
*/
package session
