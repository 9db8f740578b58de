package tmpl

// Placeholder names of the builtin templates.
const (
	FuncName   = "func_name"
	FuncArgs   = "func_args"
	BinaryData = "binary_data"
	ArgVars    = "arg_vars"
	Config     = "config"
	Callee     = "callee"
)

// Prologue goes in front of the rewritten translation unit.
var Prologue = MustParse("prologue", `
#include <mutex>

`)

// KernelWrapper replaces (or follows) a kernel definition: it registers the
// embedded machine code once and records a launch in the current graph.
var KernelWrapper = MustParse("kernel-wrapper", `
void $func_name($func_args) {
  static unsigned char binary[] = {$binary_data};

  static std::once_flag flag;
  std::call_once(flag, [&]() {
    drai::graph::KernelEntry entry((void(*)($func_args))&$func_name, std::string(reinterpret_cast<const char*>(binary), sizeof(binary)));
    drai::graph::DraiContext::Instance()->RegisterKernel(std::move(entry));
  });
  auto&& args = ::drai::PopLaunchConfig();
  assert(args.size() >= 1);
  drai::graph::DraiGraph* graph = (drai::graph::DraiGraph*)args[0];
  auto op = graph->NewKernel((void(*)($func_args))&$func_name $arg_vars);
  if (args.size() >= 2) {
    op.CoreCount(args[1]);
  }
}
`, FuncName, FuncArgs, BinaryData, ArgVars)

// KernelCall replaces a launch expression callee<<<config>>>(args).
var KernelCall = MustParse("kernel-call", `
  ::drai::PushLaunchConfig($config);
  $callee($arg_vars)`, Config, Callee, ArgVars)
