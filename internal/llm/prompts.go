package llm

import (
	"fmt"
	"strings"

	"sitedit/internal/patch"
)

// PromptBuilder constructs the conversations sent for generation and edits.
type PromptBuilder struct{}

const initialSystemPrompt = "ONLY USE HTML, CSS AND JAVASCRIPT. If you want to use ICON make sure to import the library first. " +
	"Try to create the best UI possible by using only HTML, CSS and JAVASCRIPT. MAKE IT RESPONSIVE USING TAILWINDCSS. " +
	"Use as much as you can TailwindCSS for the CSS, if you can't do something with TailwindCSS, then use custom CSS " +
	"(make sure to import <script src=\"https://cdn.tailwindcss.com\"></script> in the head). " +
	"Also, try to elaborate as much as you can, to create something unique. ALWAYS GIVE THE RESPONSE INTO A SINGLE HTML FILE"

const defaultPreviousPrompt = "You are modifying the HTML file based on the user's request."

// BuildGenerateMessages returns the conversation for a full-document
// generation. A non-empty redesign markdown takes precedence over prompt.
func (pb *PromptBuilder) BuildGenerateMessages(prompt, redesignMarkdown string) []Message {
	user := prompt
	if redesignMarkdown != "" {
		user = fmt.Sprintf("Here is my current design as a markdown:\n\n%s\n\nNow, please create a new design based on this markdown.", redesignMarkdown)
	}
	return []Message{
		{Role: RoleSystem, Content: initialSystemPrompt},
		{Role: RoleUser, Content: user},
	}
}

// BuildFollowUpMessages returns the conversation asking the model for
// SEARCH/REPLACE blocks against the current document.
func (pb *PromptBuilder) BuildFollowUpMessages(html, previousPrompt, prompt string) []Message {
	if strings.TrimSpace(previousPrompt) == "" {
		previousPrompt = defaultPreviousPrompt
	}
	return []Message{
		{Role: RoleSystem, Content: pb.FollowUpSystemPrompt()},
		{Role: RoleUser, Content: previousPrompt},
		{Role: RoleAssistant, Content: "The current code is: \n```html\n" + html + "\n```"},
		{Role: RoleUser, Content: prompt},
	}
}

// FollowUpSystemPrompt describes the edit-block grammar to the model.
func (pb *PromptBuilder) FollowUpSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are an expert web developer modifying an existing HTML file.\n")
	sb.WriteString("The user wants to apply changes based on their request.\n")
	sb.WriteString("You MUST output ONLY the changes required using the following SEARCH/REPLACE block format. Do NOT output the entire file.\n")
	sb.WriteString("Explain the changes briefly *before* the blocks if necessary, but the code changes THEMSELVES MUST be within the blocks.\n")
	sb.WriteString("Format Rules:\n")
	fmt.Fprintf(&sb, "1. Start with %s\n", patch.SearchMarker)
	sb.WriteString("2. Provide the exact lines from the current code that need to be replaced.\n")
	fmt.Fprintf(&sb, "3. Use %s to separate the search block from the replacement.\n", patch.DividerMarker)
	sb.WriteString("4. Provide the new lines that should replace the original lines.\n")
	fmt.Fprintf(&sb, "5. End with %s\n", patch.ReplaceMarker)
	sb.WriteString("6. You can use multiple SEARCH/REPLACE blocks if changes are needed in different parts of the file.\n")
	fmt.Fprintf(&sb, "7. To insert code, use an empty SEARCH block (only %s and %s on their lines) if inserting at the very beginning, "+
		"otherwise provide the line *before* the insertion point in the SEARCH block and include that line plus the new lines in the REPLACE block.\n",
		patch.SearchMarker, patch.DividerMarker)
	fmt.Fprintf(&sb, "8. To delete code, provide the lines to delete in the SEARCH block and leave the REPLACE block empty (only %s and %s on their lines).\n",
		patch.DividerMarker, patch.ReplaceMarker)
	sb.WriteString("9. IMPORTANT: The SEARCH block must *exactly* match the current code, including indentation and whitespace.\n")

	sb.WriteString("Example Modifying Code:\n```\nSome explanation...\n")
	sb.WriteString(exampleBlock("    <h1>Old Title</h1>\n", "    <h1>New Title</h1>\n"))
	sb.WriteString(exampleBlock("  </body>\n", "    <script>console.log(\"Added script\");</script>\n  </body>\n"))
	sb.WriteString("```\nExample Deleting Code:\n```\nRemoving the paragraph...\n")
	sb.WriteString(exampleBlock("  <p>This paragraph will be deleted.</p>\n", ""))
	sb.WriteString("```")
	return sb.String()
}

func exampleBlock(search, replace string) string {
	return patch.SearchMarker + "\n" + search + patch.DividerMarker + "\n" + replace + patch.ReplaceMarker + "\n"
}
