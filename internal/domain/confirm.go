package domain

// PromptKind identifies which destructive step is asking for confirmation.
type PromptKind string

const (
	PromptRemoveItem          PromptKind = "remove_item"
	PromptRemoveComboMember   PromptKind = "remove_combo_member"
	PromptOverwriteDay        PromptKind = "overwrite_day"
	PromptReduceFrequency     PromptKind = "reduce_frequency"
	PromptDeletePlan          PromptKind = "delete_plan"
	PromptDeleteTemplate      PromptKind = "delete_template"
	PromptDeleteUser          PromptKind = "delete_user"
	PromptResetWeights        PromptKind = "reset_weights"
	PromptDuplicateAssignment PromptKind = "duplicate_assignment"
)

// Prompt is the question put to the operator before a destructive step.
type Prompt struct {
	Kind    PromptKind `json:"kind"`
	Message string     `json:"message"`
}

// Confirm is the confirmation port. Returning false cancels the operation.
type Confirm func(Prompt) bool

// Confirmed answers yes to every prompt.
func Confirmed(Prompt) bool { return true }

// Declined answers no to every prompt.
func Declined(Prompt) bool { return false }

// ConfirmationError is returned when the operator declined a prompt.
type ConfirmationError struct {
	Prompt Prompt
}

func (e *ConfirmationError) Error() string {
	return "confirmation required: " + e.Prompt.Message
}

func (e *ConfirmationError) Is(target error) bool { return target == ErrCancelled }

// Ask puts p to confirm and returns a ConfirmationError unless it was
// accepted. A nil port declines.
func Ask(confirm Confirm, p Prompt) error {
	if confirm != nil && confirm(p) {
		return nil
	}
	return &ConfirmationError{Prompt: p}
}
