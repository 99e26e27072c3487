// File: internal/usecase/generation_uc_test.go
package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"coursegen/internal/domain"
	"coursegen/internal/domain/model"
)

func newTestGenerationUC(api *fakeAPI, tokens *fakeTokens) *generationUC {
	l := zerolog.Nop()
	return NewGenerationUseCase(api, tokens, &l)
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	api := &fakeAPI{}
	uc := newTestGenerationUC(api, authedTokens())

	_, err := uc.Submit(context.Background(), GenerateParams{Title: "no material"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if len(api.generateReqs) != 0 || api.uploadCalls != 0 {
		t.Fatal("backend must not be called for invalid params")
	}
}

func TestSubmitRejectsMissingSession(t *testing.T) {
	api := &fakeAPI{}
	uc := newTestGenerationUC(api, &fakeTokens{})

	_, err := uc.Submit(context.Background(), GenerateParams{Text: "explain recursion"})
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
	if len(api.generateReqs) != 0 {
		t.Fatal("no network traffic expected without a session")
	}
}

func TestSubmitTextOnly(t *testing.T) {
	api := &fakeAPI{generated: &model.Course{ID: 7, Status: model.CourseStatusPending}}
	uc := newTestGenerationUC(api, authedTokens())

	course, err := uc.Submit(context.Background(), GenerateParams{
		Text: "explain recursion", Style: "humor", Difficulty: "intermediate",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if course.ID != 7 {
		t.Fatalf("course = %+v", course)
	}
	if api.uploadCalls != 0 {
		t.Fatal("text submission must not upload a document")
	}
	req := api.generateReqs[0]
	if req.Content != "explain recursion" || req.DocumentID != nil {
		t.Fatalf("req = %+v", req)
	}
	if req.Title != "explain recursion" {
		t.Fatalf("derived title = %q", req.Title)
	}
	if req.Style != "humor" || req.Difficulty != "intermediate" {
		t.Fatalf("style/difficulty lost: %+v", req)
	}
}

func TestSubmitDerivedTitleIsTruncated(t *testing.T) {
	api := &fakeAPI{generated: &model.Course{ID: 1}}
	uc := newTestGenerationUC(api, authedTokens())

	long := strings.Repeat("a", 80)
	if _, err := uc.Submit(context.Background(), GenerateParams{Text: long}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := api.generateReqs[0].Title; len(got) != 50 {
		t.Fatalf("title length = %d, want 50", len(got))
	}
}

func TestSubmitUploadsFileFirst(t *testing.T) {
	api := &fakeAPI{
		uploadDoc: &model.Document{ID: 9, Title: "notes.md"},
		generated: &model.Course{ID: 7, Status: model.CourseStatusPending},
	}
	uc := newTestGenerationUC(api, authedTokens())

	_, err := uc.Submit(context.Background(), GenerateParams{
		File:  &SourceFile{Name: "notes.md", Reader: strings.NewReader("# recursion")},
		Title: "Recursion 101",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if api.uploadCalls != 1 {
		t.Fatalf("uploadCalls = %d", api.uploadCalls)
	}
	req := api.generateReqs[0]
	if req.DocumentID == nil || *req.DocumentID != 9 {
		t.Fatalf("request not bound to uploaded document: %+v", req)
	}
	if req.Title != "Recursion 101" {
		t.Fatalf("title = %q", req.Title)
	}
}

func TestSubmitAbortsWhenUploadFails(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("HTTP 500")}
	uc := newTestGenerationUC(api, authedTokens())

	_, err := uc.Submit(context.Background(), GenerateParams{
		File: &SourceFile{Name: "notes.md", Reader: strings.NewReader("x")},
	})
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if len(api.generateReqs) != 0 {
		t.Fatal("generation must not run after a failed upload")
	}
}

func TestSubmitPassesThroughInsufficientBalance(t *testing.T) {
	api := &fakeAPI{generateErr: &domain.RequestError{Status: 402, Detail: "insufficient credits"}}
	uc := newTestGenerationUC(api, authedTokens())

	_, err := uc.Submit(context.Background(), GenerateParams{Text: "x"})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if err.Error() != "insufficient credits" {
		t.Fatalf("detail lost: %q", err.Error())
	}
}

func TestStreamTextUsesTextEndpoint(t *testing.T) {
	api := &fakeAPI{stream: &fakeStream{tokens: []string{"<p>", "hi", "</p>"}}}
	uc := newTestGenerationUC(api, authedTokens())

	stream, err := uc.Stream(context.Background(), GenerateParams{Text: "explain recursion"}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if len(api.textStreamReqs) != 1 || len(api.docStreamReqs) != 0 {
		t.Fatalf("text=%d doc=%d stream calls", len(api.textStreamReqs), len(api.docStreamReqs))
	}
	if api.uploadCalls != 0 {
		t.Fatal("text streaming must not upload")
	}
	var out strings.Builder
	for {
		tok, rerr := stream.Recv()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			t.Fatalf("Recv: %v", rerr)
		}
		out.WriteString(tok)
	}
	if out.String() != "<p>hi</p>" {
		t.Fatalf("collected %q", out.String())
	}
}

func TestStreamFileUploadsThenUsesDocumentEndpoint(t *testing.T) {
	api := &fakeAPI{
		uploadDoc: &model.Document{ID: 9},
		stream:    &fakeStream{},
	}
	uc := newTestGenerationUC(api, authedTokens())

	stream, err := uc.Stream(context.Background(), GenerateParams{
		File: &SourceFile{Name: "notes.md", Reader: strings.NewReader("x")},
	}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if api.uploadCalls != 1 {
		t.Fatalf("uploadCalls = %d", api.uploadCalls)
	}
	if len(api.docStreamReqs) != 1 || len(api.textStreamReqs) != 0 {
		t.Fatalf("text=%d doc=%d stream calls", len(api.textStreamReqs), len(api.docStreamReqs))
	}
	if got := api.docStreamReqs[0]; got.DocumentID == nil || *got.DocumentID != 9 {
		t.Fatalf("stream request not bound to document: %+v", got)
	}
}

func TestStreamAbortsWhenUploadFails(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("HTTP 500")}
	uc := newTestGenerationUC(api, authedTokens())

	_, err := uc.Stream(context.Background(), GenerateParams{
		File: &SourceFile{Name: "notes.md", Reader: strings.NewReader("x")},
	}, nil)
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("err = %v, want ErrUploadFailed", err)
	}
	if len(api.docStreamReqs) != 0 && len(api.textStreamReqs) != 0 {
		t.Fatal("no stream should start after a failed upload")
	}
}
