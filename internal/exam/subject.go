package exam

import (
	"fmt"
	"strings"
)

// Subject identifies a syllabus area of the certification exam.
type Subject string

const (
	SubjectDatabase Subject = "database"
	SubjectSystem   Subject = "system"
	SubjectSoftware Subject = "software"
	SubjectNetwork  Subject = "network"
	SubjectSecurity Subject = "security"
)

// SubjectInfo describes a subject for prompts and menus.
type SubjectInfo struct {
	Subject Subject
	// Name is the English name used in prompts.
	Name string
	// Topics seeds the generator with representative areas.
	Topics []string
}

var subjects = []SubjectInfo{
	{
		Subject: SubjectDatabase,
		Name:    "Database",
		Topics:  []string{"normalization", "SQL", "transactions", "indexing", "ER modeling"},
	},
	{
		Subject: SubjectSystem,
		Name:    "Operating Systems and Architecture",
		Topics:  []string{"process scheduling", "memory management", "file systems", "CPU architecture"},
	},
	{
		Subject: SubjectSoftware,
		Name:    "Software Engineering",
		Topics:  []string{"development lifecycle", "testing", "design patterns", "UML", "project management"},
	},
	{
		Subject: SubjectNetwork,
		Name:    "Networking",
		Topics:  []string{"OSI model", "TCP/IP", "routing", "subnetting", "application protocols"},
	},
	{
		Subject: SubjectSecurity,
		Name:    "Information Security",
		Topics:  []string{"cryptography", "access control", "attacks and countermeasures", "secure coding"},
	},
}

// Subjects returns the subject catalog in display order.
func Subjects() []SubjectInfo {
	out := make([]SubjectInfo, len(subjects))
	copy(out, subjects)
	return out
}

// LookupSubject returns the catalog entry for s.
func LookupSubject(s Subject) (SubjectInfo, bool) {
	for _, info := range subjects {
		if info.Subject == s {
			return info, true
		}
	}
	return SubjectInfo{}, false
}

// ParseSubject maps a tag to a known Subject.
func ParseSubject(s string) (Subject, error) {
	subj := Subject(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := LookupSubject(subj); !ok {
		return "", fmt.Errorf("unknown subject %q", s)
	}
	return subj, nil
}
