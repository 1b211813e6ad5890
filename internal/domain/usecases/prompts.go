package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xcro3dile/flowsupport/internal/domain/entities"
)

const requirementsBlock = `[CRITICAL - CHECK SYSTEM REQUIREMENTS FIRST]

System Requirements:
- Mac: macOS 12.0 or newer, 500MB free space, microphone, internet
- Windows: Windows 10 (64-bit) or later, Intel i3/AMD Ryzen 3+, 4GB RAM (8GB recommended), 500MB space, microphone, internet
- iPhone: iOS 18.3 or newer, 500MB free space, internet

ALWAYS verify user meets minimum requirements BEFORE providing troubleshooting steps.
---
`

// DeviceClarificationMessage is sent when the user's device is needed to answer.
const DeviceClarificationMessage = `I can help with that! To give you the most accurate solution, could you let me know which device you're using?

- **Mac** (macOS)
- **Windows** (PC)
- **iPhone** (iOS)

Just let me know and I'll provide specific instructions for your device!`

// SupportEmail is quoted in hand-off messages.
const SupportEmail = "support@useflow.ai"

const systemInstruction = `You are FlowSupport AI, a helpful customer success agent for Wispr Flow.

Your role:
- Answer questions using ONLY the provided documentation
- BE CONCISE and natural - like helping a colleague
- For installation issues: ALWAYS check system requirements FIRST
- For troubleshooting: Provide specific solutions
- Match Wispr Flow's voice: professional but approachable

Installation Issue Protocol:
When user says Flow "won't install" or "can't install":
1. FIRST: State minimum requirements for their device
2. THEN: Ask if they meet these requirements
3. ONLY IF they meet requirements: Provide troubleshooting steps

System Requirements:
- Mac: macOS 12.0+, 500MB space, microphone, internet
- Windows: Windows 10 64-bit+, Intel i3/Ryzen 3+, 4GB RAM (8GB rec), 500MB space, microphone, internet
- iPhone: iOS 18.3+, 500MB space, internet

Conversation Style:
- Keep responses under 100 words for requirements checks
- Keep other responses under 150 words
- Give COMPLETE answers with clear next steps
- End naturally: "Hope that helps!", "Let me know if you need anything else!"
- Never ask "Does that answer your question?"
- Be warm and human, not robotic

Guidelines:
- Don't make up information
- Check requirements BEFORE troubleshooting
- Be helpful and complete`

func userInstruction(query, context string) string {
	return fmt.Sprintf(`User Question: %s

Relevant Documentation:
%s

Instructions:
1. Identify if this is an INSTALLATION or SETUP issue
2. If installation: START with system requirements check (under 100 words)
3. Ask user to verify requirements BEFORE providing other troubleshooting
4. If NOT installation: provide complete answer (under 150 words)
5. End naturally: "Let me know if that works!" or "Hope that helps!"

Provide a helpful, accurate, COMPLETE response.`, query, context)
}

func escalationMessage(d entities.EscalationDecision) string {
	return fmt.Sprintf(`I'd like to connect you with our support team for personalized assistance.

**Why:** %s
**Team:** %s
**Priority:** %s

You can reach support at: %s`, d.Reason, d.Team("General Support"), d.Priority, SupportEmail)
}

// generationErrorMessage names only the kind of failure; provider detail stays in the logs.
func generationErrorMessage(err error) string {
	return fmt.Sprintf("I encountered an error processing your question (%s). Please try rephrasing or contact support at %s.",
		errorClass(err), SupportEmail)
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "the answer took too long"
	case errors.Is(err, context.Canceled):
		return "the request was cancelled"
	default:
		return "the answer service is unavailable"
	}
}
