// Package protocols contains concrete link.Protocol implementations.
//
// Sum8 is a compact binary framing with an 8-bit checksum, HDLC is the
// byte-stuffed framing with CRC-16 used over noisy serial lines, and Line
// carries human readable text commands terminated by a newline.
package protocols
