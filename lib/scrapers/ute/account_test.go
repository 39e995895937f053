package ute

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractSupplyPointId(t *testing.T) {
	cases := []struct {
		name   string
		html   string
		expect string
	}{
		{
			name: "single matching anchor",
			html: `<html><body>
				<table id="tablaSuministros"><tr><td>
					<a href="/SelfService/SSvcController/cmvisualizarcurvadecarga?spId=789456">Curva de carga</a>
				</td></tr></table>
			</body></html>`,
			expect: "789456",
		},
		{
			name: "first numeric match wins",
			html: `<html><body>
				<a href="/cmvisualizarcurvadecarga?spId=111">a</a>
				<a href="/cmvisualizarcurvadecarga?spId=222">b</a>
			</body></html>`,
			expect: "111",
		},
		{
			name: "anchors to other views are ignored",
			html: `<html><body>
				<a href="/cmfacturas?spId=333">facturas</a>
				<a href="/cmvisualizarcurvadecarga?otherParam=1">curva</a>
			</body></html>`,
			expect: "",
		},
		{
			name:   "no anchors at all",
			html:   `<html><body><p>Sin suministros</p></body></html>`,
			expect: "",
		},
		{
			name: "non-numeric spId is skipped",
			html: `<html><body>
				<a href="/cmvisualizarcurvadecarga?spId=abc&x=spId=">bad</a>
				<a href="/cmvisualizarcurvadecarga?foo=1&spId=4242">good</a>
			</body></html>`,
			expect: "4242",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			id, err := extractSupplyPointId(test.html)
			require.NoError(t, err)
			require.Equal(t, test.expect, id)
		})
	}
}
