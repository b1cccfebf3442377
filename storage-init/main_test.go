package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

func TestQueueExists(t *testing.T) {
	exists := &azcore.ResponseError{ErrorCode: "QueueAlreadyExists", StatusCode: 409}
	if !queueExists(fmt.Errorf("create: %w", exists)) {
		t.Fatalf("expected wrapped QueueAlreadyExists to be tolerated")
	}
	if queueExists(&azcore.ResponseError{ErrorCode: "QueueBeingDeleted", StatusCode: 409}) {
		t.Fatalf("expected other conflicts to fail")
	}
	if queueExists(errors.New("dial tcp: timeout")) {
		t.Fatalf("expected transport errors to fail")
	}
}
