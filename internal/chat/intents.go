package chat

import "strings"

// Intent is what an idle user's message asks for.
type Intent int

const (
	IntentUnknown Intent = iota
	IntentGreeting
	IntentFAQ
	IntentListDoctors
	IntentShowAppointments
	IntentCancelAppointment
	IntentBookAppointment
	IntentSetReminder
	IntentOnboarding
)

// restrictedPhrases require a signed-in user.
var restrictedPhrases = []string{"book appointment", "set reminder", "show appointments", "cancel appointment"}

// flowTriggers are checked in order; the first phrase contained in the
// message wins.
var flowTriggers = []struct {
	phrase string
	intent Intent
}{
	{"show appointments", IntentShowAppointments},
	{"cancel appointment", IntentCancelAppointment},
	{"book appointment", IntentBookAppointment},
	{"reminder", IntentSetReminder},
	{"onboard", IntentOnboarding},
}

type faqEntry struct {
	keywords []string
	answer   string
}

// greetingKeywords match anywhere in the message, so "this" greets too.
var greetingKeywords = []string{"hello", "hi"}

// faqs is ordered from most to least specific. An entry matches when every
// keyword occurs in the message.
var faqs = []faqEntry{
	{
		keywords: []string{"diabetes", "symptom"},
		answer:   "Common symptoms include increased thirst, frequent urination, fatigue, and blurred vision. Should I connect you with a Diabetologist?",
	},
	{
		keywords: []string{"diabetes", "manag"},
		answer:   "Manage diabetes with a balanced diet, regular exercise, medication, and monitoring blood sugar. Want to book a consultation for personalized advice?",
	},
	{
		keywords: []string{"diabetes"},
		answer:   "Diabetes is a condition where your body has trouble managing blood sugar levels. Type 1 is autoimmune, while Type 2 is often lifestyle-related. Want to know about symptoms or management?",
	},
	{
		keywords: []string{"hypertension"},
		answer:   "Hypertension, or high blood pressure, can strain your heart. It’s often managed with lifestyle changes and medication. Need a doctor’s advice?",
	},
	{
		keywords: []string{"heart", "symptom"},
		answer:   "Symptoms include chest pain, shortness of breath, fatigue, and swelling in legs. Would you like to consult a Cardiologist?",
	},
	{
		keywords: []string{"heart"},
		answer:   "Maintain heart health with a low-sodium diet, regular exercise, stress management, and avoiding smoking. Want to schedule a heart check-up?",
	},
}

// Classify maps a lower-cased message to an intent using keyword and
// substring matching only. faq is set for IntentFAQ.
func Classify(lower string) (intent Intent, faq string) {
	if isGreeting(lower) {
		return IntentGreeting, ""
	}
	for _, entry := range faqs {
		if containsAll(lower, entry.keywords) {
			return IntentFAQ, entry.answer
		}
	}
	if strings.Contains(lower, "doctor") {
		return IntentListDoctors, ""
	}
	for _, trigger := range flowTriggers {
		if strings.Contains(lower, trigger.phrase) {
			return trigger.intent, ""
		}
	}
	return IntentUnknown, ""
}

// IsRestricted reports whether an anonymous caller must log in first.
func IsRestricted(lower string) bool {
	for _, phrase := range restrictedPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func isGreeting(lower string) bool {
	for _, kw := range greetingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func containsAll(s string, parts []string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
