package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"karma-bot/internal/config"
)

func TestDispatchDrainsBeforeShutdown(t *testing.T) {
	cfg := &config.Config{
		BotMaxInflight:    4,
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
	}
	b := New(nil, cfg, nil, nil, nil)
	defer b.rateLimiter.Close()

	ctx := context.Background()
	for i := 0; i < 16; i++ {
		b.dispatch(ctx, tgbotapi.Update{})
	}

	// Wait возвращается только после завершения всех обработчиков
	b.wg.Wait()

	if len(b.inflight) != 0 {
		t.Fatalf("inflight slots must be released, %d left", len(b.inflight))
	}
}

func TestParseCommand(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name      string
		in        string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{name: "bang", in: "!топ", wantCmd: "топ", isCommand: true},
		{name: "slash", in: "/login secret", wantCmd: "login", wantArgs: []string{"secret"}, isCommand: true},
		{name: "dot", in: ".я", wantCmd: "я", isCommand: true},
		{name: "upper", in: "!ТОП", wantCmd: "топ", isCommand: true},
		{name: "args", in: "!ок 15", wantCmd: "ок", wantArgs: []string{"15"}, isCommand: true},
		{name: "whitespace", in: "  !топ  ", wantCmd: "топ", isCommand: true},
		{name: "plain text", in: "привет", isCommand: false},
		{name: "bare prefix", in: "!", isCommand: false},
		{name: "empty", in: "", isCommand: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := parser.ParseCommand(tt.in)
			if ok != tt.isCommand {
				t.Fatalf("isCommand = %v, want %v", ok, tt.isCommand)
			}
			if !ok {
				return
			}
			if cmd != tt.wantCmd {
				t.Fatalf("cmd = %q, want %q", cmd, tt.wantCmd)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Fatalf("args = %v, want %v", args, tt.wantArgs)
				}
			}
		})
	}
}
