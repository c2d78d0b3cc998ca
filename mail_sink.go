package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// Dev stand-in for the mail relay: prints verification codes the auth
// service would have emailed. Point MAILER_WEBHOOK_URL at it.
func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Only POST method is accepted", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusInternalServerError)
			return
		}
		defer r.Body.Close()

		var data map[string]string
		if err := json.Unmarshal(body, &data); err != nil {
			http.Error(w, "Error parsing JSON", http.StatusBadRequest)
			return
		}

		log.Println("Received verification mail:")
		log.Printf("  Email: %s", data["email"])
		log.Printf("  Code: %s", data["code"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Mail received!"))
	})

	log.Println("Mail sink listening on :9090")
	if err := http.ListenAndServe(":9090", nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
