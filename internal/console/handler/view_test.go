package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/state"
)

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "****", MaskKey("abc"))
	assert.Equal(t, "****cret", MaskKey("super-secret"))
	assert.Equal(t, "****", MaskKey("ключ"))
	assert.Equal(t, "****люч1", MaskKey("секретный-ключ1"))
}

func TestPresentHidesWebhookURLs(t *testing.T) {
	snap := state.Snapshot{
		Headers:       domain.HeaderConfig{Mode: domain.ModeProd, APIKey: "key-12345"},
		Bindings:      domain.WorkflowBindings{domain.FlowActivation: "http://n8n/webhook/a", domain.FlowDeactivation: ""},
		Flows:         []domain.FlowBinding{{Flow: "alerts", URL: "http://n8n/webhook/alerts"}},
		BackendConfig: &domain.BackendConfig{N8nWebhookBase: "http://n8n/webhook"},
	}

	got := Present(snap, true)

	assert.Equal(t, "****2345", got.Headers.APIKey)
	assert.Equal(t, hiddenURL, got.Bindings[domain.FlowActivation])
	assert.Equal(t, "", got.Bindings[domain.FlowDeactivation])
	assert.Equal(t, hiddenURL, got.Flows[0].URL)
	assert.Equal(t, "alerts", got.Flows[0].Flow)
	assert.Equal(t, hiddenURL, got.BackendConfig.N8nWebhookBase)
}

func TestPresentKeepsURLsByDefault(t *testing.T) {
	snap := state.Snapshot{
		Headers:  domain.HeaderConfig{Mode: domain.ModeMock},
		Bindings: domain.WorkflowBindings{domain.FlowActivation: "http://n8n/webhook/a"},
	}

	got := Present(snap, false)

	assert.Equal(t, "http://n8n/webhook/a", got.Bindings[domain.FlowActivation])
	assert.Empty(t, got.Headers.APIKey)
}
