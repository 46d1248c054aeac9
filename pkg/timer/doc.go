// Package timer measures how many times per second a Go function can be
// called. It prepares each candidate for a fixed argument shape and runs a
// self-calibrating loop whose length approximates a target wall-clock
// duration without knowing the candidate's cost in advance.
//
// Ranking and display live in package report; package harness runs a list
// of candidates through both.
package timer
