package trivia

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trivia-host-service/internal/domain"
)

func TestFetchQuestionsDecodesEntities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api.php" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("category") != "23" || r.URL.Query().Get("amount") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"response_code":0,"results":[
			{"category":"History","question":"Who said &quot;veni, vidi, vici&quot;?","correct_answer":"Caesar","incorrect_answers":["Brutus","Nero &amp; Otho","Cicero"]},
			{"category":"History","question":"Second question?","correct_answer":"Yes","incorrect_answers":["No","Maybe","Later"]}
		]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	questions, err := client.FetchQuestions(context.Background(), 23, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].Text != `Who said "veni, vidi, vici"?` {
		t.Fatalf("entities not decoded: %q", questions[0].Text)
	}
	if questions[0].IncorrectAnswers[1] != "Nero & Otho" {
		t.Fatalf("incorrect answers not decoded: %q", questions[0].IncorrectAnswers[1])
	}
	if questions[0].CorrectAnswer != "Caesar" || questions[0].Category != "History" {
		t.Fatalf("unexpected question: %+v", questions[0])
	}
}

func TestFetchQuestionsShortResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"results":[{"category":"History","question":"only one","correct_answer":"a","incorrect_answers":["b"]}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	_, err := client.FetchQuestions(context.Background(), 23, 5)
	assertUpstreamUnavailable(t, err)
}

func TestFetchQuestionsUpstreamCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Response code 1 means "no results" upstream.
		fmt.Fprint(w, `{"response_code":1,"results":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	_, err := client.FetchQuestions(context.Background(), 999, 1)
	assertUpstreamUnavailable(t, err)
}

func TestFetchQuestionsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	_, err := client.FetchQuestions(context.Background(), 23, 1)
	assertUpstreamUnavailable(t, err)
}

func TestCategoriesCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_category.php" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"trivia_categories":[{"id":9,"name":"General Knowledge"},{"id":23,"name":"History"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cats, err := client.Categories(ctx)
			if err != nil {
				t.Errorf("categories: %v", err)
				return
			}
			if len(cats) != 2 || cats[1].Name != "History" {
				t.Errorf("unexpected categories: %+v", cats)
			}
		}()
	}
	wg.Wait()

	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("cached read: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single upstream request, got %d", got)
	}
}

func TestCategoriesExpire(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"trivia_categories":[{"id":9,"name":"General Knowledge"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Millisecond)
	ctx := context.Background()
	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("first read: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := client.Categories(ctx); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected cache refresh, got %d upstream requests", got)
	}
}

func assertUpstreamUnavailable(t *testing.T, err error) {
	t.Helper()
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Code != domain.UpstreamUnavailable {
		t.Fatalf("expected UPSTREAM_UNAVAILABLE, got %v", err)
	}
}
