package ics

import (
	"fmt"
	"strings"
	"time"
)

// vcal wraps VEVENT bodies in a minimal ADE-like VCALENDAR.
func vcal(events ...string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nMETHOD:REQUEST\r\nPRODID:-//ADE/version 6.0\r\nVERSION:2.0\r\nCALSCALE:GREGORIAN\r\n")
	for _, e := range events {
		b.WriteString(e)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func vevent(uid, start, end, location string) string {
	return fmt.Sprintf("BEGIN:VEVENT\r\nUID:%s\r\nDTSTAMP:20251020T000000Z\r\nDTSTART:%s\r\nDTEND:%s\r\nSUMMARY:Cours\r\nLOCATION:%s\r\nEND:VEVENT\r\n", uid, start, end, location)
}

func at(s string) time.Time {
	t, err := time.Parse(utcLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
