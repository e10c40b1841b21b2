package scenario

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/editor"
)

// execution is the mutable state shared by the steps of one run.
type execution struct {
	editor  *editor.Editor
	outputs map[string]string
}

// handler runs one action and returns a short textual output for the run record.
type handler func(ctx context.Context, x *execution, with map[string]any) (string, error)

type textArgs struct {
	Text string `mapstructure:"text"`
}

type blockArgs struct {
	Name     string `mapstructure:"name"`
	Selector string `mapstructure:"selector"`
}

type visitArgs struct {
	URL string `mapstructure:"url"`
}

type scheduleArgs struct {
	At time.Time `mapstructure:"at"`
}

type visibilityArgs struct {
	Level    domain.Visibility `mapstructure:"level"`
	Password string            `mapstructure:"password"`
}

type nameArgs struct {
	Name string `mapstructure:"name"`
}

type slugArgs struct {
	Slug string `mapstructure:"slug"`
}

type previewArgs struct {
	Target domain.PreviewTarget `mapstructure:"target"`
}

type expectArgs struct {
	Equals   *string `mapstructure:"equals"`
	Contains string  `mapstructure:"contains"`
}

var handlers = map[string]handler{
	domain.ActionEnterTitle: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args textArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		if err := x.editor.EnterTitle(ctx, args.Text); err != nil {
			return "", err
		}
		x.outputs[domain.OutputTitle] = strings.TrimSpace(args.Text)
		return x.outputs[domain.OutputTitle], nil
	},
	domain.ActionEnterText: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args textArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		if err := x.editor.EnterText(ctx, args.Text); err != nil {
			return "", err
		}
		x.outputs[domain.OutputText] = args.Text
		return "", nil
	},
	domain.ActionAddBlock: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args blockArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		return "", x.editor.AddBlock(ctx, args.Name, args.Selector)
	},
	domain.ActionPublish: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var opts domain.PublishOptions
		if err := decodeArgs(with, &opts); err != nil {
			return "", err
		}
		u, err := x.editor.Publish(ctx, opts)
		if u != nil {
			x.outputs[domain.OutputPublishedURL] = u.String()
		}
		if err != nil {
			return "", err
		}
		return u.String(), nil
	},
	domain.ActionVisitPublished: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args visitArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		raw := args.URL
		if raw == "" {
			raw = x.outputs[domain.OutputPublishedURL]
		}
		if raw == "" {
			return "", &domain.ConfigError{Field: "url", Reason: "no url given and nothing was published yet"}
		}
		target, err := url.Parse(raw)
		if err != nil || target.Host == "" {
			return "", &domain.ConfigError{Field: "url", Reason: "not an absolute url", Value: raw}
		}
		return target.String(), x.editor.VisitPublished(ctx, target)
	},
	domain.ActionSchedule: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args scheduleArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		if err := x.editor.Schedule(ctx, args.At); err != nil {
			return "", err
		}
		return args.At.Format(time.RFC3339), nil
	},
	domain.ActionSetVisibility: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args visibilityArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		opts := domain.VisibilityOptions{Password: args.Password}
		return string(args.Level), x.editor.SetVisibility(ctx, args.Level, opts)
	},
	domain.ActionSelectCategory: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args nameArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		return args.Name, x.editor.SelectCategory(ctx, args.Name)
	},
	domain.ActionAddTag: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args nameArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		return args.Name, x.editor.AddTag(ctx, args.Name)
	},
	domain.ActionSetSlug: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		var args slugArgs
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		return args.Slug, x.editor.SetSlug(ctx, args.Slug)
	},
	domain.ActionUnpublish: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		return "", x.editor.Unpublish(ctx)
	},
	domain.ActionSaveDraft: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		return "", x.editor.SaveDraft(ctx)
	},
	domain.ActionExitEditor: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		dest, err := x.editor.ExitEditor(ctx)
		if err != nil {
			return "", err
		}
		x.outputs[domain.OutputExitURL] = dest
		return dest, nil
	},
	domain.ActionPreviewMobile: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		s, err := x.editor.PreviewAsMobile(ctx)
		if err != nil {
			return "", err
		}
		return s.ID(), nil
	},
	domain.ActionPreviewDesktop: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		args := previewArgs{Target: domain.PreviewDesktop}
		if err := decodeArgs(with, &args); err != nil {
			return "", err
		}
		return string(args.Target), x.editor.PreviewAsDesktop(ctx, args.Target)
	},
	domain.ActionClosePreview: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		return "", x.editor.ClosePreview(ctx)
	},
	domain.ActionClosePanels: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		if err := decodeArgs(with, &struct{}{}); err != nil {
			return "", err
		}
		return "", x.editor.CloseAllPanels(ctx)
	},
	domain.ActionExpectTitle: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		title, err := x.editor.Title(ctx)
		if err != nil {
			return "", err
		}
		x.outputs[domain.OutputTitle] = title
		return title, expect("expect title", title, with)
	},
	domain.ActionExpectText: func(ctx context.Context, x *execution, with map[string]any) (string, error) {
		text, err := x.editor.Text(ctx)
		if err != nil {
			return "", err
		}
		x.outputs[domain.OutputText] = text
		return "", expect("expect text", text, with)
	},
}

// Actions returns the supported step actions in sorted order.
func Actions() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func decodeArgs(with map[string]any, out any) error {
	if len(with) == 0 {
		return nil
	}
	if err := decode(with, out); err != nil {
		return &domain.ConfigError{Field: "with", Reason: err.Error()}
	}
	return nil
}

func expect(op, observed string, with map[string]any) error {
	var args expectArgs
	if err := decodeArgs(with, &args); err != nil {
		return err
	}
	if args.Equals == nil && args.Contains == "" {
		return &domain.ConfigError{Field: "with", Reason: "equals or contains is required"}
	}
	if args.Equals != nil && observed != *args.Equals {
		return &domain.VerificationMismatchError{Op: op, Expected: *args.Equals, Observed: observed}
	}
	if args.Contains != "" && !strings.Contains(observed, args.Contains) {
		return &domain.VerificationMismatchError{Op: op, Expected: fmt.Sprintf("text containing %q", args.Contains), Observed: observed}
	}
	return nil
}
