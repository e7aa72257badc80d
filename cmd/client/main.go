package main

import (
	"fmt"
	"log"

	"github.com/Codingstar67/ping-buddy/internals/config"
	"github.com/Codingstar67/ping-buddy/internals/initializers"
	"github.com/Codingstar67/ping-buddy/internals/loginflow"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	initializers.LoadEnvVariables()

	serverURL := config.GetEnvAsStr("SERVER_URL", "http://localhost:8080")
	cooldown := config.GetEnvAsInt("RESEND_COOLDOWN_SECONDS", 30, true)

	client := loginflow.NewHTTPClient(serverURL)
	p := tea.NewProgram(loginflow.New(client, cooldown))

	final, err := p.Run()
	if err != nil {
		log.Fatal("Error running login flow: ", err)
	}

	if m, ok := final.(loginflow.Model); ok && m.Authenticated() {
		fmt.Println("You are signed in.")
	}
}
