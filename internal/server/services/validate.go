package services

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"
)

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, "@")
}

func validWebURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func inRating(r float64) bool { return r >= 0 && r <= 5 }
