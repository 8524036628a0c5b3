package main

import (
	"bufio"
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const (
	exitOK    = 0
	exitError = 1
)

type Config struct {
	RelayURL string `envconfig:"RELAY_URL" default:"http://localhost:8080"`
	Username string `envconfig:"RELAY_USERNAME" required:"true"`
	Password string `envconfig:"RELAY_PASSWORD" required:"true"`
	Colours  bool   `envconfig:"RELAY_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitError, err
	}
	color.Enable = config.Colours

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(config.RelayURL)
	if err := c.Login(ctx, config.Username, config.Password); err != nil {
		return exitError, err
	}
	color.Green.Printf("logged in as %s (%s)\n", c.Me().Username, c.Me().ID)

	stream, err := c.Connect(ctx)
	if err != nil {
		return exitError, err
	}
	defer stream.Close()

	go func() {
		<-ctx.Done()
		_ = stream.Close()
	}()
	go printEvents(stream)

	if err := readCommands(ctx, c, stream, os.Stdin); err != nil {
		return exitError, err
	}
	return exitOK, nil
}

func printEvents(stream *client.Stream) {
	for {
		frame, err := stream.Next()
		if err != nil {
			color.Gray.Println("connection closed:", err)
			return
		}
		switch frame.Event {
		case event.NewMessage:
			var m event.MessagePayload
			if json.Unmarshal(frame.Data, &m) == nil {
				fmt.Printf("[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), color.Cyan.Render(m.Sender.Username), m.Content)
			}
		case event.UserOnline, event.UserOffline:
			var p event.PresencePayload
			if json.Unmarshal(frame.Data, &p) == nil {
				color.Gray.Printf("%s %s\n", p.UserID, strings.TrimPrefix(frame.Event, "user_"))
			}
		case event.Typing:
			var p event.TypingPayload
			if json.Unmarshal(frame.Data, &p) == nil {
				color.Gray.Printf("%s is typing in %s\n", p.Username, p.Room)
			}
		case event.Error:
			var p event.ErrorPayload
			if json.Unmarshal(frame.Data, &p) == nil {
				color.Red.Println("error:", p.Message)
			}
		}
	}
}

const usage = `commands:
  /users                  list accounts
  /online                 list online user ids
  /groups                 list my groups
  /join <room>            subscribe to a room
  /leave <room>           unsubscribe from a room
  /dm <userId> <text>     direct message (joins the DM room)
  /group <groupId> <text> group message (joins the group room)
  /typing <room>          typing indicator
  /quit`

func readCommands(ctx context.Context, c *client.Client, stream *client.Stream, in io.Reader) error {
	fmt.Println(usage)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.SplitN(strings.TrimSpace(scanner.Text()), " ", 3)
		if fields[0] == "" {
			continue
		}
		if fields[0] == "/quit" {
			return nil
		}
		if err := dispatch(ctx, c, stream, fields); err != nil {
			color.Red.Println(err)
		}
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, c *client.Client, stream *client.Stream, fields []string) error {
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	switch fields[0] {
	case "/users":
		users, err := c.Users(ctx)
		if err != nil {
			return err
		}
		renderTable([]string{"ID", "Username", "Created"}, lo.Map(users, func(u client.User, _ int) []string {
			return []string{u.ID, u.Username, u.CreatedAt.Format("2006-01-02")}
		}))
	case "/online":
		ids, err := c.Online(ctx)
		if err != nil {
			return err
		}
		fmt.Println(strings.Join(ids, "\n"))
	case "/groups":
		groups, err := c.Groups(ctx)
		if err != nil {
			return err
		}
		renderTable([]string{"ID", "Name", "Members"}, lo.Map(groups, func(g client.Group, _ int) []string {
			return []string{g.ID, g.Name, fmt.Sprint(len(g.Members))}
		}))
	case "/join":
		return stream.Join(domain.RoomID(arg(1)))
	case "/leave":
		return stream.Leave(domain.RoomID(arg(1)))
	case "/typing":
		return stream.Typing(domain.RoomID(arg(1)))
	case "/dm":
		if err := stream.Join(domain.DMRoom(c.Me().ID, arg(1))); err != nil {
			return err
		}
		return stream.SendDirect(arg(1), arg(2))
	case "/group":
		if err := stream.Join(domain.GroupRoom(arg(1))); err != nil {
			return err
		}
		return stream.SendGroup(arg(1), arg(2))
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

func renderTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.AppendBulk(rows)
	table.Render()
}
