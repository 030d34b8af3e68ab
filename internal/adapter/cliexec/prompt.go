package cliexec

import "strings"

// PromptWithAttachments appends attachment references to the instruction
// text. None of the wrapped CLIs take attachments as separate arguments,
// so they ride along in the prompt.
func PromptWithAttachments(instruction string, attachments []string) string {
	if len(attachments) == 0 {
		return instruction
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	for _, a := range attachments {
		sb.WriteString("\nRead the reference file: ")
		sb.WriteString(a)
	}
	return sb.String()
}
