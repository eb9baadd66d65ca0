// Command gmail-token runs the one-time interactive OAuth2 consent flow for
// the Gmail notifier and prints the resulting refresh token. Store the token
// in Secret Manager as gmail-refresh-token, alongside gmail-client-id and
// gmail-client-secret.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

func main() {
	clientID := flag.String("client-id", "", "OAuth2 client id from the GCP console")
	clientSecret := flag.String("client-secret", "", "OAuth2 client secret from the GCP console")
	flag.Parse()

	if *clientID == "" || *clientSecret == "" {
		fmt.Fprintln(os.Stderr, "Usage: gmail-token -client-id <id> -client-secret <secret>")
		os.Exit(1)
	}

	if err := run(*clientID, *clientSecret); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(clientID, clientSecret string) error {
	// Listen on a random localhost port for the OAuth redirect.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen for redirect: %w", err)
	}
	defer listener.Close()

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gmail.GmailSendScope},
		RedirectURL:  fmt.Sprintf("http://%s/", listener.Addr().String()),
	}

	// AccessTypeOffline requests a refresh token; ApprovalForce makes Google
	// return one even if the user consented before.
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("Open the following URL in your browser and authorize the application:\n\n%s\n\n", authURL)

	codeCh := make(chan string, 1)
	srv := &http.Server{
		ReadHeaderTimeout: 15 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "missing authorization code", http.StatusBadRequest)
				return
			}
			fmt.Fprintln(w, "Authorization received. You can close this window.")
			codeCh <- code
		}),
	}
	go srv.Serve(listener) //nolint:errcheck

	code := <-codeCh

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer srv.Shutdown(ctx) //nolint:errcheck

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	if token.RefreshToken == "" {
		return fmt.Errorf("no refresh token returned; revoke the app's access and try again")
	}

	fmt.Println("\n--- GMAIL API CREDENTIALS ---")
	fmt.Printf("Your Refresh Token is: %s\n", token.RefreshToken)
	fmt.Println("\nStore this value in Google Secret Manager with the name 'gmail-refresh-token'.")
	fmt.Println("You should also store your client_id and client_secret as 'gmail-client-id' and 'gmail-client-secret'.")
	fmt.Println("-----------------------------")

	return nil
}
