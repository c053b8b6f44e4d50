// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

package bot

import (
	"strings"

	"github.com/burrowspace/burrow/internal/world"
)

// HandleChat delivers one chat line heard by the bot. Whispers starting
// with the command prefix are interpreted as commands; other whispers
// are forwarded when forwarding is on. Failures are whispered back to
// the sender instead of being swallowed.
func (b *Bot) HandleChat(sender *world.User, text string, isWhisper bool) {
	if sender == nil || sender.ID == b.User.ID {
		return
	}
	if !isWhisper {
		return
	}
	if !strings.HasPrefix(text, b.cfg.CommandPrefix) {
		b.forwardWhisper(sender, text)
		return
	}
	if err := b.runCommand(sender, strings.TrimPrefix(text, b.cfg.CommandPrefix)); err != nil {
		b.whisper(sender, "error: "+err.Error())
	}
}

// forwardWhisper relays a non-command whisper to the configured
// recipient, prefixed with the original sender's name.
func (b *Bot) forwardWhisper(sender *world.User, text string) {
	b.mu.Lock()
	forwardTo := b.forwardTo
	b.mu.Unlock()
	if forwardTo == nil || *forwardTo == sender.ID {
		return
	}
	recipient, err := b.tree.User(*forwardTo)
	if err != nil {
		return
	}
	b.whisper(recipient, sender.Name+" whispered: "+text)
}

// runCommand parses and executes one whispered command.
func (b *Bot) runCommand(sender *world.User, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return errUnknownCommand(line)
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "follow":
		b.mu.Lock()
		b.following = true
		id := sender.ID
		b.targetID = &id
		b.mu.Unlock()
		b.whisper(sender, "following you")
		return nil

	case "unfollow":
		b.mu.Lock()
		b.following = false
		b.targetID = nil
		b.mu.Unlock()
		b.whisper(sender, "staying put")
		return nil

	case "sprint":
		on, err := parseToggle(args)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.sprint = on
		b.mu.Unlock()
		return nil

	case "autochat":
		on, err := parseToggle(args)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.autoChat = on
		b.mu.Unlock()
		return nil

	case "autotalk":
		on, err := parseToggle(args)
		if err != nil {
			return err
		}
		b.mu.Lock()
		b.autoTalk = on
		b.mu.Unlock()
		return nil

	case "forward":
		on, err := parseToggle(args)
		if err != nil {
			return err
		}
		b.mu.Lock()
		if on {
			id := sender.ID
			b.forwardTo = &id
		} else {
			b.forwardTo = nil
		}
		b.mu.Unlock()
		return nil

	case "say":
		if len(args) == 0 {
			return errMissingArgument(cmd)
		}
		b.Say(strings.Join(args, " "))
		return nil

	case "speak":
		if len(args) == 0 {
			return errMissingArgument(cmd)
		}
		text := strings.Join(args, " ")
		b.mu.Lock()
		b.speech = append(b.speech, synthesize(text, b.voice)...)
		b.mu.Unlock()
		return nil

	case "voice":
		if len(args) == 0 {
			return errMissingArgument(cmd)
		}
		b.mu.Lock()
		b.voice = args[0]
		b.mu.Unlock()
		return nil

	case "selfdestruct":
		b.whisper(sender, "goodbye")
		b.selfDestruct()
		return nil

	default:
		return errUnknownCommand(cmd)
	}
}

// selfDestruct stops the loop asynchronously, removes the bot from the
// world and hands it back to the manager. Asynchronous because the
// command may arrive on the loop goroutine itself.
func (b *Bot) selfDestruct() {
	go func() {
		b.Stop()
		b.tree.RemoveUser(b.User.ID)
		if b.onRemove != nil {
			b.onRemove(b)
		}
	}()
}

// parseToggle reads an on/off argument, defaulting to on.
func parseToggle(args []string) (bool, error) {
	if len(args) == 0 {
		return true, nil
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, errBadToggle(args[0])
	}
}
