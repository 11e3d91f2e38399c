package serve

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/sapling/componenttree"
)

// broker manages SSE client connections and broadcasts update messages.
type broker struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
	latest  string
}

func newBroker() *broker {
	return &broker{
		clients: make(map[chan string]struct{}),
	}
}

func (b *broker) subscribe() chan string {
	ch := make(chan string, 1)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	if b.latest != "" {
		ch <- b.latest
	}
	b.mu.Unlock()
	return ch
}

func (b *broker) unsubscribe(ch chan string) {
	b.mu.Lock()
	delete(b.clients, ch)
	close(ch)
	b.mu.Unlock()
}

func (b *broker) publish(message string) {
	b.mu.Lock()
	b.latest = message
	for ch := range b.clients {
		select {
		case ch <- message:
		default:
		}
	}
	b.mu.Unlock()
}

// publishSnapshot serializes a store snapshot into the two host update
// messages and broadcasts them as one SSE payload.
func (b *broker) publishSnapshot(snapshot componenttree.Snapshot) {
	settings := snapshot.Settings
	messages := []updateMessage{
		{Type: messageParsedData, Tree: snapshot.Tree},
		{Type: messageSettingsData, Settings: &settings},
	}
	data, err := json.Marshal(messages)
	if err != nil {
		return
	}
	b.publish(string(data))
}

func newServer(store *componenttree.Store, b *broker, port int) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc(routeIndex, handleIndex)
	mux.HandleFunc(routeEvents, handleSSE(b))
	mux.HandleFunc(routeTree, handleTree(store))
	mux.HandleFunc(routeParse, handleParse(store))
	mux.HandleFunc(routeEntry, handleEntry(store))
	mux.HandleFunc(routeToggle, handleToggle(store))
	mux.HandleFunc(routeSettings, handleSettings(store))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}

func handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "sapling serve")
	fmt.Fprintln(w, "GET  /events    SSE stream of parsed-data/settings-data messages")
	fmt.Fprintln(w, "GET  /tree      current tree snapshot")
	fmt.Fprintln(w, "POST /parse     rebuild the tree from the entry file")
	fmt.Fprintln(w, "POST /entry     {\"path\": ...} set the entry file and parse")
	fmt.Fprintln(w, "POST /toggle    {\"id\": ..., \"expanded\": ...}")
	fmt.Fprintln(w, "POST /settings  {\"key\": ..., \"value\": ...}")
}

func handleSSE(b *broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		ch := b.subscribe()
		defer b.unsubscribe(ch)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-ch:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: update\n")
				for _, line := range strings.Split(message, "\n") {
					fmt.Fprintf(w, "data: %s\n", line)
				}
				fmt.Fprintf(w, "\n")
				flusher.Flush()
			}
		}
	}
}

func handleTree(store *componenttree.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, componenttree.Snapshot{
			Tree:     store.GetTree(),
			Settings: store.Settings(),
		})
	}
}

func handleParse(store *componenttree.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		tree, err := store.Parse()
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, tree)
	}
}

func handleEntry(store *componenttree.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req entryRequest
		if !decodePost(w, r, &req) {
			return
		}
		store.SetEntryFile(req.Path)
		tree, err := store.Parse()
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, tree)
	}
}

func handleToggle(store *componenttree.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req toggleRequest
		if !decodePost(w, r, &req) {
			return
		}
		writeJSON(w, store.ToggleNode(req.ID, req.Expanded))
	}
}

func handleSettings(store *componenttree.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if !decodePost(w, r, &req) {
			return
		}
		if err := store.UpdateSettings(req.Key, req.Value); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, store.Settings())
	}
}

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
