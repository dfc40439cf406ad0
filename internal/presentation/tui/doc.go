// Package tui holds the terminal presentation of the chat command.
package tui
