package faults_test

import (
	"errors"
	"io"
	"testing"

	"github.com/dalemusser/clinsync/internal/app/system/faults"
)

func TestWrap_KeepsKindAndCause(t *testing.T) {
	err := faults.Wrap(faults.ErrActionFailed, "approve match", io.ErrUnexpectedEOF)

	if !errors.Is(err, faults.ErrActionFailed) {
		t.Error("expected ErrActionFailed to match")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected cause to stay reachable")
	}
	if errors.Is(err, faults.ErrRootFetchFailed) {
		t.Error("did not expect ErrRootFetchFailed to match")
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := faults.Wrap(faults.ErrActionFailed, "noop", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestValidation_ListsEveryField(t *testing.T) {
	var v faults.Validation
	v.Require("title", "Title", "")
	v.Require("location", "Location", "  ")
	v.Require("contact_name", "Contact name", "Dana")

	err := v.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrValidationFailed) {
		t.Error("expected ErrValidationFailed to match")
	}

	got, ok := faults.AsValidation(err)
	if !ok {
		t.Fatal("expected *Validation")
	}
	if len(got.Fields) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(got.Fields))
	}
	if !got.Has("title") || !got.Has("location") || got.Has("contact_name") {
		t.Errorf("unexpected fields: %v", got.Fields)
	}
}

func TestValidation_EmptyIsNil(t *testing.T) {
	var v faults.Validation
	if err := v.Err(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
