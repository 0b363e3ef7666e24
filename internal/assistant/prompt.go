package assistant

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const fallbackSystemPrompt = `Ты помощник языковой школы «%s». Отвечай коротко и дружелюбно, на языке собеседника.
Помогай выбрать курс английского и записаться на пробный урок.
Не придумывай цены, расписание и имена преподавателей. Если не знаешь ответа, предложи нажать «📌 Записаться на пробный урок», и администратор свяжется.`

// schoolPlaceholder in a prompt file is replaced with the school name.
const schoolPlaceholder = "{SCHOOL_NAME}"

// Prompt is everything sent to the generator for one answer.
type Prompt struct {
	System  string
	History []Turn
	Text    string
}

// String flattens the prompt into role-labelled plain text.
func (p Prompt) String() string {
	var b strings.Builder
	if s := strings.TrimSpace(p.System); s != "" {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	for _, t := range p.History {
		b.WriteString(roleLabel(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	b.WriteString("User: ")
	b.WriteString(p.Text)
	b.WriteString("\nAssistant:")
	return b.String()
}

func roleLabel(r Role) string {
	if r == RoleAssistant {
		return "Assistant"
	}
	return "User"
}

// LoadSystemPrompt reads the system instruction from path. A missing, empty or
// unset file yields the built-in template for school.
func LoadSystemPrompt(path, school string) (string, error) {
	fallback := fmt.Sprintf(fallbackSystemPrompt, school)
	if strings.TrimSpace(path) == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fallback, nil
	case err != nil:
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return fallback, nil
	}
	return strings.ReplaceAll(text, schoolPlaceholder, school), nil
}
