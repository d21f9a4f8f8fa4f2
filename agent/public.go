package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/etnz/tradechain"
	"github.com/etnz/tradechain/docs"
	"github.com/etnz/tradechain/renderer"
	"google.golang.org/genai"
)

const model = "gemini-2.5-pro"

// newFacilitator creates the expert in charge of the conversation.
func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the expert's skills from the Tools and ask them questions.
			They are at your service and 100% dedicated to you, they keep context of your previous questions.

			The user is a trader reviewing his trading activity. He thinks in trade chains,
			the round trips grouping the fills that opened and closed a position, and he expects
			you to have checked his chains before answering.

			Devise a plan of questions to ask each expert and come up with the best response
			to the user's request.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// NewAnalyst creates the market analyst expert. It grounds its answers with
// Google Search.
func NewAnalyst() *Expert {
	return &Expert{
		Name: "Analyst",
		Description: `This is an expert market analyst,
		very well aware of all the financial products and institutions,
		and of the latest news about the different companies and futures markets.
		Ask the Analyst whenever you need recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are an expert in markets. You can search and find about anything related to
			financial institutions, companies, futures, options and equities. You leverage
			Google Search to ground your assertions in a solid truth.
			You can get the latest news too, and you know how to relate them to the
			underlyings the user trades.
				`}}},
		},
	}
}

// NewBookkeeper creates the expert in charge of the user's trading activity.
// load reconciles the activity on demand, so the expert always answers from
// the current files.
func NewBookkeeper(load func() (*tradechain.Consolidation, error)) *Expert {
	lib := bookkeeperLibrary(load)

	return &Expert{
		Name: "Bookkeeper",
		Description: `This is the Bookkeeper. He is in charge of reading the user's trading
		activity. He can list the trade chains with their results, detail one chain fill by
		fill, report the held positions and compute per-underlying statistics.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
				You are a bookkeeper in charge of the user's trading activity.
				You know how to use the Tools to extract relevant information about his
				trade chains, his positions and his results. You are part of a team of
				experts; they might ask you questions about the user's trading, pardon
				their approximative language and figure out what they meant.

				Use the available tools to get information about
				  - the trade chains and their realized and unrealized results
				  - one chain in full, fill by fill
				  - the held positions
				  - the win rate and friction costs per underlying
			`}}},
		},
		Library: NewLibrary(lib),
	}
}

// Func implements a simple Function.
type Func struct {
	// Declare this function
	Decl *genai.FunctionDeclaration
	// Call this function
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// respond wraps a rendered report, or the error, into a function response.
func respond(id, name, output string, err error) *genai.FunctionResponse {
	resp := &genai.FunctionResponse{ID: id, Name: name, Response: map[string]any{}}
	if err != nil {
		resp.Response["error"] = err.Error()
		return resp
	}
	resp.Response["output"] = output
	return resp
}

func bookkeeperLibrary(load func() (*tradechain.Consolidation, error)) []Function {
	chains := &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Chains",
			Description: `Chains lists the user's trade chains with their status, duration,
			fees, realized and unrealized results, as a markdown table.

			` + must(docs.GetTopic("chains")),
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"underlying": {
						Type:        genai.TypeString,
						Description: "Only chains trading that underlying, e.g. \"XYZ\" or \"/GEZ21\". All of them by default.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of the trade chains with their results.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			res, err := load()
			if err != nil {
				return respond(id, "Chains", "", err)
			}
			list := res.Chains
			if underlying, ok := args["underlying"].(string); ok && underlying != "" {
				var kept tradechain.Chains
				for _, c := range list {
					if strings.Contains(c.Underlying, underlying) {
						kept = append(kept, c)
					}
				}
				list = kept
			}
			return respond(id, "Chains", renderer.ChainsMarkdown(list, res.Positions), nil)
		},
	}

	detail := &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "ChainDetail",
			Description: `ChainDetail renders one trade chain in full: its annotations, its
			figures, and every fill in order.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"chain_id": {
						Type:        genai.TypeString,
						Description: "The chain id, as listed by Chains.",
					},
				},
				Required: []string{"chain_id"},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the chain with its fills.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			res, err := load()
			if err != nil {
				return respond(id, "ChainDetail", "", err)
			}
			chainID, _ := args["chain_id"].(string)
			chain := res.Chains.Get(chainID)
			if chain == nil {
				return respond(id, "ChainDetail", "", fmt.Errorf("unknown chain %q, ask Chains for the list", chainID))
			}
			return respond(id, "ChainDetail", renderer.ChainMarkdown(chain, res.Positions), nil)
		},
	}

	positions := &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Positions",
			Description: `Positions reports the latest position snapshot of each account with the net liquidation value at the reported marks.`,
			Parameters:  &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown table of the held positions.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			res, err := load()
			if err != nil {
				return respond(id, "Positions", "", err)
			}
			return respond(id, "Positions", renderer.PositionsMarkdown(res.Positions), nil)
		},
	}

	stats := &Func{
		Decl: &genai.FunctionDeclaration{
			Name:        "Stats",
			Description: `Stats reports win rate, realized result and friction costs, overall and per underlying.`,
			Parameters:  &genai.Schema{Type: genai.TypeObject},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown report of the chain statistics.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			res, err := load()
			if err != nil {
				return respond(id, "Stats", "", err)
			}
			return respond(id, "Stats", renderer.StatsMarkdown(res.Chains), nil)
		},
	}

	return []Function{chains, detail, positions, stats}
}
