// Package logs reads the timetabled log file for `timetable logs`.
//
// Last returns the final lines of the file, ReadFrom continues from a byte
// offset, and Follow polls for appended lines until its context ends. A
// file that shrank since the last read (rotation or truncation) is read
// again from the start.
package logs
