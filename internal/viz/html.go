package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var pageTemplate = template.Must(template.New("viz").Parse(htmlTemplate))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", or "grid"
	Title  string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout: "force",
		Title:  "Space Biology Knowledge Graph",
	}
}

// ValidLayouts lists the accepted --layout values.
var ValidLayouts = []string{"force", "circle", "grid"}

// cytoscapeLayouts maps layout names to Cytoscape.js layout algorithms.
var cytoscapeLayouts = map[string]string{
	"":       "cose",
	"force":  "cose",
	"circle": "circle",
	"grid":   "grid",
}

// NodeColors maps node types to their fill colour.
var NodeColors = map[string]string{
	"publication": "#FF6B6B",
	"author":      "#4ECDC4",
	"journal":     "#45B7D1",
	"theme":       "#96CEB4",
	"keyword":     "#FFEAA7",
}

// GenerateHTML renders the graph as a standalone page. An empty graph gets a
// placeholder page rather than an error.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	layout, ok := cytoscapeLayouts[opts.Layout]
	if !ok {
		return "", fmt.Errorf("invalid layout %q: must be one of %s", opts.Layout, strings.Join(ValidLayouts, ", "))
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(), nil
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Layout:    layout,
		Colors:    NodeColors,
		Omitted:   graph.Omitted,
		NodeCount: len(graph.Nodes),
		EdgeCount: len(graph.Edges),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
	Colors    map[string]string
	Omitted   int
	NodeCount int
	EdgeCount int
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Knowledge Graph - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state p {
      margin: 0.5em 0;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No graph data</h2>
    <p>The publications file produced no nodes.</p>
    <p>Check <code>data.publications</code> with <code>spacebio config get data.publications</code></p>
  </div>
</body>
</html>`
}


const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #legend {
      position: absolute;
      top: 12px;
      left: 12px;
      background: rgba(255,255,255,0.9);
      border: 1px solid #ddd;
      border-radius: 4px;
      padding: 8px 12px;
      font-size: 12px;
      z-index: 900;
    }
    #legend h1 {
      font-size: 14px;
      margin: 0 0 6px 0;
    }
    #legend .swatch {
      display: inline-block;
      width: 10px;
      height: 10px;
      border-radius: 50%;
      margin-right: 6px;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 320px;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .type {
      font-size: 10px;
      text-transform: uppercase;
      color: #888;
      margin-bottom: 4px;
    }
    #tooltip .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #tooltip .detail {
      color: #555;
      margin: 2px 0;
    }
  </style>
</head>
<body>
  <div id="legend">
    <h1>{{.Title}}</h1>
    {{range $type, $color := .Colors}}<div><span class="swatch" style="background: {{$color}}"></span>{{$type}}</div>
    {{end}}<div class="detail">{{.NodeCount}} nodes, {{.EdgeCount}} edges{{if .Omitted}} ({{.Omitted}} nodes hidden){{end}}</div>
  </div>
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";
      const colors = {{.Colors}};

      const typeStyles = Object.keys(colors).map(function(type) {
        return {
          selector: 'node[type="' + type + '"]',
          style: { 'background-color': colors[type] }
        };
      });

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          {
            selector: 'node',
            style: {
              'label': 'data(label)',
              'color': '#333',
              'font-size': '9px',
              'text-valign': 'bottom',
              'text-margin-y': '4px',
              'text-max-width': '120px',
              'text-wrap': 'ellipsis',
              'width': 'mapData(degree, 0, 50, 15, 60)',
              'height': 'mapData(degree, 0, 50, 15, 60)'
            }
          },
          {
            selector: 'node[type="publication"]',
            style: { 'shape': 'round-rectangle' }
          },
          {
            selector: 'node[type="theme"]',
            style: { 'shape': 'hexagon' }
          },
          {
            selector: 'node[type="keyword"]',
            style: { 'shape': 'diamond' }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '#BDC3C7',
              'curve-style': 'haystack',
              'width': 1,
              'opacity': 0.6
            }
          },
          {
            selector: 'edge[relationshipType="co_authors"]',
            style: { 'line-color': '#4ECDC4', 'width': 'mapData(count, 1, 10, 2, 8)' }
          },
          {
            selector: 'node.highlighted',
            style: {
              'border-width': 3,
              'border-color': '#2C3E50'
            }
          },
          {
            selector: 'node.dimmed',
            style: { 'opacity': 0.25 }
          },
          {
            selector: 'edge.dimmed',
            style: { 'opacity': 0.1 }
          }
        ].concat(typeStyles),
        layout: {
          name: layout,
          animate: false,
          nodeRepulsion: 8000,
          idealEdgeLength: 80,
          edgeElasticity: 100
        }
      });

      const tooltip = document.getElementById('tooltip');

      function escapeHtml(str) {
        if (!str) return '';
        return String(str).replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      function nodeTooltip(node) {
        const data = node.data();
        let html = '<div class="type">' + data.type + '</div>';
        html += '<div class="label">' + escapeHtml(data.label) + '</div>';
        if (data.type === 'publication') {
          if (data.title && data.title !== data.label) html += '<div class="detail">' + escapeHtml(data.title) + '</div>';
          if (data.date) html += '<div class="detail">Published: ' + escapeHtml(data.date) + '</div>';
        } else {
          html += '<div class="detail">Publications: ' + data.weight + '</div>';
        }
        html += '<div class="detail">Connections: ' + data.degree + '</div>';
        return html;
      }

      cy.on('mouseover', 'node', function(evt) {
        tooltip.innerHTML = nodeTooltip(evt.target);
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      });

      cy.on('mouseout', 'node', function() {
        tooltip.style.display = 'none';
      });

      cy.on('tap', 'node', function(evt) {
        const node = evt.target;
        if (node.data('url') && evt.originalEvent && evt.originalEvent.metaKey) {
          window.open(node.data('url'), '_blank');
          return;
        }
        cy.elements().removeClass('highlighted dimmed');
        const neighborhood = node.neighborhood().add(node);
        neighborhood.addClass('highlighted');
        cy.elements().not(neighborhood).addClass('dimmed');
      });

      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.elements().removeClass('highlighted dimmed');
        }
      });
    })();
  </script>
</body>
</html>`
