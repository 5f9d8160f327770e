package responder

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rule maps trigger keywords to a canned reply. The first rule whose
// keyword appears in the prompt wins.
type Rule struct {
	Keywords []string `json:"keywords"`
	Reply    string   `json:"reply"`
}

// matches reports whether any keyword occurs in the lowercased prompt
func (r Rule) matches(prompt string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(prompt, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// defaultRules covers the common MATLAB troubleshooting topics
func defaultRules() []Rule {
	return []Rule{
		{
			Keywords: []string{"plot", "graph", "figure"},
			Reply: "To plot data in MATLAB, use the plot function:\n\n" +
				"```\nx = 0:0.1:10;\ny = sin(x);\nplot(x, y)\nxlabel('x'), ylabel('sin(x)'), title('Sine Wave')\n```\n\n" +
				"Use hold on to overlay multiple series, and figure to open a new window.",
		},
		{
			Keywords: []string{"linear equation", "solve", "linsolve"},
			Reply: "Solve a linear system Ax = b with the backslash operator:\n\n" +
				"```\nA = [2 1; 1 3];\nb = [3; 5];\nx = A \\ b\n```\n\n" +
				"The backslash operator picks a solver based on the structure of A and is preferred over inv(A)*b.",
		},
		{
			Keywords: []string{"index", "indexing", "subscript"},
			Reply: "MATLAB indexing starts at 1, not 0. Common forms:\n\n" +
				"```\nA(2, 3)     % row 2, column 3\nA(1, :)     % entire first row\nA(end, end) % last element\nA(A > 5)    % logical indexing\n```\n\n" +
				"An \"Index exceeds matrix dimensions\" error means the subscript is larger than size(A).",
		},
		{
			Keywords: []string{"loop", "for", "while"},
			Reply: "MATLAB loops:\n\n" +
				"```\nfor k = 1:10\n    disp(k)\nend\n\nwhile tol > 1e-6\n    tol = tol / 2;\nend\n```\n\n" +
				"Preallocate arrays before a loop with zeros or ones; growing an array inside a loop is slow.",
		},
		{
			Keywords: []string{"function", "argument", "nargin"},
			Reply: "Define a function in its own file named after the function:\n\n" +
				"```\nfunction y = square(x)\n    y = x.^2;\nend\n```\n\n" +
				"Use nargin to check how many arguments were passed, and arguments blocks for validation in newer releases.",
		},
		{
			Keywords: []string{"debug", "breakpoint", "error"},
			Reply: "To debug MATLAB code, set a breakpoint by clicking the dash next to a line number, " +
				"or run dbstop if error to stop where an error is thrown. " +
				"Inside the debugger, use dbstep, dbcont, and dbquit. " +
				"The workspace browser shows every variable in the paused scope.",
		},
		{
			Keywords: []string{"simulink"},
			Reply: "Simulink models are built from block diagrams. Open the library browser with " +
				"slLibraryBrowser, drag blocks onto the canvas, and connect ports. " +
				"Run a model from scripts with sim('modelname') and read logged signals from the returned SimulationOutput.",
		},
		{
			Keywords: []string{"vectorize", "vectorization", "slow"},
			Reply: "Replace element-wise loops with array operations:\n\n" +
				"```\n% loop\nfor k = 1:n, y(k) = x(k)^2; end\n\n% vectorized\ny = x.^2;\n```\n\n" +
				"Element-wise operators are .*, ./ and .^. Functions like sum, cumsum, and bsxfun work on whole arrays.",
		},
	}
}

// loadRules reads extra rules from a JSON file. They take precedence
// over the built-in set.
func loadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var rules []Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	return rules, nil
}
