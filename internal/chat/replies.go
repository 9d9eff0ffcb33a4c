package chat

import "strings"

const (
	replyLoginRequired     = "Please log in to book appointments, set reminders, view appointments, or cancel appointments."
	replyFallback          = "I’m not sure I understand. Try asking about appointments, doctors, diabetes, heart care, reminders, or onboarding."
	replyNoDoctors         = "No doctors available at the moment. Please check back later."
	replyAlreadyOnboarded  = "You’ve already completed onboarding! Want to update your profile?"
	replyStorageFailure    = "Sorry, something went wrong on our side. Please try again in a moment."
	replyActionUnavailable = "Service temporarily unavailable. Please try again later."
	replyActionTimeout     = "The request timed out. Please try again."
)

// greeting addresses the user by the local part of their e-mail when known.
func greeting(email string) string {
	name := ""
	if at := strings.Index(email, "@"); at > 0 {
		name = " " + email[:at]
	}
	return "Hello" + name + "! I’m your health assistant. How can I help today?" +
		" Try asking about appointments, doctors, diabetes, heart care, reminders, or onboarding."
}
