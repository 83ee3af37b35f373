package open

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/Zuo-Peng/chatdigest/internal/index"
)

// OpenMessage opens the source file of the message at seq in $EDITOR (less
// when unset), positioned at the message's header line.
func OpenMessage(db *index.DB, seq int) error {
	m, err := db.GetMessage(seq)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if m == nil {
		return fmt.Errorf("message not found: %d", seq)
	}

	filePath, lineNum, err := Location(m.SourceFile, m.SourceLine)
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}
	return openInEditor(editor, filePath, lineNum)
}

// Location resolves a stored source reference to a file on disk and a line
// to jump to. Mail attachments are stored as "mail.eml#name"; they open the
// mail file itself at line 1.
func Location(sourceFile string, sourceLine int) (string, int, error) {
	if sourceFile == "" {
		return "", 0, fmt.Errorf("message has no source file")
	}
	path, attachment, _ := strings.Cut(sourceFile, "#")
	if _, err := os.Stat(path); err != nil {
		return "", 0, fmt.Errorf("file not found: %s", path)
	}
	line := sourceLine
	if attachment != "" || line < 1 {
		line = 1
	}
	return path, line, nil
}

func editorCommand(editor, filePath string, lineNum int) *exec.Cmd {
	switch {
	case strings.Contains(editor, "vim"), strings.Contains(editor, "nano"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	case strings.Contains(editor, "code"):
		return exec.Command(editor, "--goto", filePath+":"+strconv.Itoa(lineNum))
	case strings.Contains(editor, "less"):
		return exec.Command(editor, "+"+strconv.Itoa(lineNum), filePath)
	}
	return exec.Command(editor, filePath)
}

func openInEditor(editor, filePath string, lineNum int) error {
	cmd := editorCommand(editor, filePath, lineNum)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
