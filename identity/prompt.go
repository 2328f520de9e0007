package identity

import (
	"context"
	"errors"

	"github.com/ncruces/zenity"
)

// Prompter asks the user who they are during sign-in.
type Prompter interface {
	PromptDisplayName(ctx context.Context) (string, error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context) (string, error)

func (f PrompterFunc) PromptDisplayName(ctx context.Context) (string, error) { return f(ctx) }

// StaticPrompter answers with a fixed name, for non-interactive sign-in.
func StaticPrompter(name string) Prompter {
	return PrompterFunc(func(context.Context) (string, error) { return name, nil })
}

// DialogPrompter opens a native entry dialog.
type DialogPrompter struct{}

func (DialogPrompter) PromptDisplayName(ctx context.Context) (string, error) {
	name, err := zenity.Entry("Display name:",
		zenity.Title("Sign in to Image Converter"),
		zenity.Context(ctx),
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrSignInCancelled
		}
		return "", err
	}
	return name, nil
}
