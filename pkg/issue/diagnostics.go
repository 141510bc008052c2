package issue

import (
	"fmt"
	"strings"
)

// DiagnosticID identifies a specific diagnostic message.
type DiagnosticID string

// Diagnostic IDs for document loading.
const (
	DiagDocumentUnreadable  DiagnosticID = "DOCUMENT_UNREADABLE"
	DiagDocumentInvalidJSON DiagnosticID = "DOCUMENT_INVALID_JSON"
	DiagDocumentDuplicate   DiagnosticID = "DOCUMENT_DUPLICATE"
	DiagCodingNotRelocated  DiagnosticID = "CODING_NOT_RELOCATED"
)

// Diagnostic IDs for artifact verification.
const (
	DiagArtifactUnreadable    DiagnosticID = "ARTIFACT_UNREADABLE"
	DiagValueSetNotFound      DiagnosticID = "VALUESET_NOT_FOUND"
	DiagCodeNotInValueSet     DiagnosticID = "CODE_NOT_IN_VALUESET"
	DiagDisplayMismatch       DiagnosticID = "DISPLAY_MISMATCH"
	DiagCodeSystemURLMismatch DiagnosticID = "CODESYSTEM_URL_MISMATCH"
)

// DiagnosticTemplate defines the structure for a diagnostic message.
type DiagnosticTemplate struct {
	ID       DiagnosticID
	Severity Severity
	Code     Code
	Template string
}

// diagnosticTemplates maps diagnostic IDs to their templates.
// Templates use {placeholder} syntax for variable substitution.
var diagnosticTemplates = map[DiagnosticID]DiagnosticTemplate{
	DiagDocumentUnreadable: {
		Severity: SeverityError,
		Code:     CodeException,
		Template: "Failed to read document: {error}",
	},
	DiagDocumentInvalidJSON: {
		Severity: SeverityError,
		Code:     CodeStructure,
		Template: "Failed to parse document: {error}",
	},
	DiagDocumentDuplicate: {
		Severity: SeverityInformation,
		Code:     CodeDuplicate,
		Template: "Document has the same content as '{original}' and was skipped",
	},
	DiagCodingNotRelocated: {
		Severity: SeverityWarning,
		Code:     CodeProcessing,
		Template: "Coding '{system}|{code}' found at '{path}' could not be located again: {reason}",
	},
	DiagArtifactUnreadable: {
		Severity: SeverityWarning,
		Code:     CodeException,
		Template: "Failed to load emitted artifact '{file}': {error}",
	},
	DiagValueSetNotFound: {
		Severity: SeverityWarning,
		Code:     CodeNotFound,
		Template: "ValueSet '{valueSet}' not found - codes of '{path}' cannot be verified",
	},
	DiagCodeNotInValueSet: {
		Severity: SeverityWarning,
		Code:     CodeCodeInvalid,
		Template: "The code '{code}' is not in the value set '{valueSet}'",
	},
	DiagDisplayMismatch: {
		Severity: SeverityWarning,
		Code:     CodeCodeInvalid,
		Template: "Display '{provided}' for code '{code}' does not match expected '{expected}'",
	},
	DiagCodeSystemURLMismatch: {
		Severity: SeverityWarning,
		Code:     CodeInvalid,
		Template: "ValueSet '{valueSet}' includes '{included}' instead of CodeSystem '{codeSystem}'",
	},
}

// FormatDiagnostic renders the message for id with params.
func FormatDiagnostic(id DiagnosticID, params map[string]any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		return string(id)
	}
	return formatTemplate(tmpl.Template, params)
}

// GetDiagnosticTemplate returns the template for a diagnostic ID.
func GetDiagnosticTemplate(id DiagnosticID) (DiagnosticTemplate, bool) {
	tmpl, ok := diagnosticTemplates[id]
	if ok {
		tmpl.ID = id
	}
	return tmpl, ok
}

// formatTemplate replaces {placeholder} with values from params.
func formatTemplate(template string, params map[string]any) string {
	result := template
	for key, value := range params {
		placeholder := "{" + key + "}"
		result = strings.ReplaceAll(result, placeholder, fmt.Sprint(value))
	}
	return result
}

// AddWithID adds an issue using a diagnostic template and its severity.
func (r *Result) AddWithID(id DiagnosticID, params map[string]any, expression ...string) {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		r.AddError(CodeProcessing, string(id), expression...)
		return
	}

	r.Issues = append(r.Issues, Issue{
		Severity:    tmpl.Severity,
		Code:        tmpl.Code,
		Diagnostics: formatTemplate(tmpl.Template, params),
		Expression:  expression,
		MessageID:   string(id),
	})
}
