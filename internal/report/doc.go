// Package report exports run outcomes as spreadsheets for coordination
// teams who track model federation in Excel.
package report
