// Package ui provides helpers for human-readable console output.
//
// ConsoleCommandEventLogger turns git lifecycle events into sentences for the
// console log format, and ReportRenderer prints branch health reports as an
// aligned, optionally colored table.
package ui
