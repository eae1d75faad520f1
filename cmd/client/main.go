package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/adrianliechti/narrator/pkg/client"

	"github.com/google/uuid"
)

func main() {
	urlFlag := flag.String("url", "http://localhost:8080", "server url")
	tokenFlag := flag.String("token", "", "server token")

	voiceFlag := flag.String("voice", "alloy", "voice")
	formatFlag := flag.String("format", "mp3", "audio format")

	flag.Parse()

	ctx := context.Background()

	options := []client.RequestOption{}

	if *tokenFlag != "" {
		options = append(options, client.WithToken(*tokenFlag))
	}

	c := client.New(*urlFlag, options...)

	reader := bufio.NewReader(os.Stdin)
	output := os.Stdout

LOOP:
	for {
		output.WriteString(">>> ")
		input, err := reader.ReadString('\n')

		if err != nil {
			return
		}

		input = strings.TrimSpace(input)

		if input == "" {
			continue LOOP
		}

		generation, err := c.Generations.New(ctx, client.GenerateRequest{
			Text:  input,
			Voice: *voiceFlag,

			Format: *formatFlag,
		})

		if err != nil {
			output.WriteString(err.Error() + "\n")
			continue LOOP
		}

		name := uuid.New().String() + "." + generation.Format

		os.WriteFile(name, generation.Content, 0600)
		fmt.Printf("Saved: %s (%d chunks", name, generation.Chunks)

		if generation.FailedChunks > 0 {
			fmt.Printf(", %d failed", generation.FailedChunks)
		}

		fmt.Println(")")

		output.WriteString("\n")
	}
}
