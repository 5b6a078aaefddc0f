// Package output provides styled terminal output for the quill CLI.
//
// # Usage
//
//	output.Success("Generated 3 files")
//	output.Action("created", "models/user_profile.py", "+12 -0")
//	output.Warn("1 conflict left unresolved")
//	output.Step("run quill generate --diff to inspect it")
//
// # Verbose Mode
//
//	output.SetVerbose(true)
//	output.Verbose("Loading specs from: specs/")
//
// # Styling
//
// Styles are lipgloss and consistent with the rest of the Firebird Suite:
//
//   - Success: 🔥 green bold
//   - Error: ❌ red bold
//   - Warn: ⚠️ yellow
//   - Info: ℹ️ cyan
//   - Step: indented gray
//   - Verbose: 🔍 gray (when enabled)
package output
