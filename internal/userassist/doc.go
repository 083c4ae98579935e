// Package userassist decodes Windows UserAssist execution records.
//
// UserAssist values live under
// HKCU\Software\Microsoft\Windows\CurrentVersion\Explorer\UserAssist\<GUID>\Count.
// Each value name is the ROT13 form of a program path, often starting with a
// {KNOWNFOLDERID} token, and each value payload is a 72-byte structure of
// which this package reads:
//
//	offset  size  field
//	     4     4  run counter
//	     8     4  focus count
//	    12     4  focus time (milliseconds)
//	    60     8  last executed (FILETIME)
//
// All integers are little-endian. The UEME_CTLSESSION value uses an
// unrelated layout and is never decoded.
package userassist
