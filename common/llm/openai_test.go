package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"crosswalk.app/api/common/llm"
)

const toolCallCompletion = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1718000000,
	"model": "gpt-4o",
	"choices": [{
		"index": 0,
		"finish_reason": "%s",
		"message": {
			"role": "assistant",
			"content": null,
			"tool_calls": [{
				"id": "call_1",
				"type": "function",
				"function": {"name": "read_file", "arguments": "{\"path\":\"src/App.tsx\"}"}
			}]
		}
	}],
	"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

var _ = Describe("OpenAI client", func() {
	var (
		srv      *httptest.Server
		captured map[string]any
		reply    string
	)

	BeforeEach(func() {
		captured = nil
		reply = ""
		srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			body, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(body, &captured)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, reply)
		}))
		DeferCleanup(srv.Close)
	})

	newClient := func(effort llm.ReasoningEffort) llm.AgentClient {
		client, err := llm.NewAgentClient(llm.Config{
			Provider:        llm.ProviderOpenAI,
			APIKey:          "sk-test",
			BaseURL:         srv.URL + "/v1",
			Model:           "gpt-4o",
			ReasoningEffort: effort,
		})
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	type readArgs struct {
		Path string `json:"path"`
	}

	request := llm.AgentRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You edit the app."},
			{Role: llm.RoleUser, Content: "make the header blue"},
			{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
				{ID: "call_0", Name: "read_file", Arguments: `{"path":"src/Header.tsx"}`},
			}},
			llm.ToolResult("call_0", "File not found: src/Header.tsx", true),
		},
		Tools: []llm.Tool{{
			Name:        "read_file",
			Description: "Read a file from the branch",
			Parameters:  llm.GenerateSchema[readArgs](),
		}},
		MaxTokens: 1024,
	}

	It("sends tools, flagged tool results and the reasoning effort", func() {
		reply = fmtCompletion("tool_calls")

		_, err := newClient(llm.ReasoningEffortLow).ChatWithTools(context.Background(), request)
		Expect(err).NotTo(HaveOccurred())

		Expect(captured).To(HaveKeyWithValue("model", "gpt-4o"))
		Expect(captured).To(HaveKeyWithValue("reasoning_effort", "low"))
		Expect(captured).To(HaveKeyWithValue("max_completion_tokens", BeNumerically("==", 1024)))

		tools := captured["tools"].([]any)
		Expect(tools).To(HaveLen(1))
		fn := tools[0].(map[string]any)["function"].(map[string]any)
		Expect(fn).To(HaveKeyWithValue("name", "read_file"))
		Expect(fn["parameters"]).To(HaveKey("properties"))

		messages := captured["messages"].([]any)
		Expect(messages).To(HaveLen(4))
		assistant := messages[2].(map[string]any)
		Expect(assistant).NotTo(HaveKey("content"))
		Expect(assistant["tool_calls"]).To(HaveLen(1))
		tool := messages[3].(map[string]any)
		Expect(tool).To(HaveKeyWithValue("role", "tool"))
		Expect(tool).To(HaveKeyWithValue("tool_call_id", "call_0"))
		Expect(tool).To(HaveKeyWithValue("content", "ERROR: File not found: src/Header.tsx"))
	})

	It("omits the reasoning effort when none is configured", func() {
		reply = fmtCompletion("tool_calls")

		_, err := newClient("").ChatWithTools(context.Background(), request)
		Expect(err).NotTo(HaveOccurred())
		Expect(captured).NotTo(HaveKey("reasoning_effort"))
	})

	DescribeTable("reads tool calls from the first choice",
		func(finish string) {
			reply = fmtCompletion(finish)

			resp, err := newClient("").ChatWithTools(context.Background(), request)
			Expect(err).NotTo(HaveOccurred())

			Expect(resp.WantsTools()).To(BeTrue())
			Expect(resp.FinishReason).To(Equal(llm.FinishReasonToolCalls))
			Expect(resp.ToolCalls).To(Equal([]llm.ToolCall{
				{ID: "call_1", Name: "read_file", Arguments: `{"path":"src/App.tsx"}`},
			}))
			Expect(resp.PromptTokens).To(Equal(12))
			Expect(resp.CompletionTokens).To(Equal(5))
		},
		Entry("tool_calls", "tool_calls"),
		Entry("legacy function_call", "function_call"),
	)

	It("fails when the response has no choices", func() {
		reply = `{"id":"chatcmpl-2","object":"chat.completion","created":1718000000,"model":"gpt-4o","choices":[],"usage":{}}`

		_, err := newClient("").ChatWithTools(context.Background(), request)
		Expect(err).To(MatchError(ContainSubstring("no choices")))
	})
})

func fmtCompletion(finish string) string {
	return fmt.Sprintf(toolCallCompletion, finish)
}
